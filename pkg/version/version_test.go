package version

import "testing"

func TestClientName(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "1.4.0"
	if got := ClientName("paylens-analytics"); got != "paylens-analytics/1.4.0" {
		t.Errorf("ClientName() = %q, want paylens-analytics/1.4.0", got)
	}
}
