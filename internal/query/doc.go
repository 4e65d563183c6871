// Package query builds analytics SQL for the transactional (PostgreSQL) and
// analytical (ClickHouse) backends from one set of builder calls.
//
// # Builder
//
// A Builder is bound to one table and one dialect. The dialect is a type
// parameter, so a builder can only ever produce text for its backend:
//
//	b := query.New[query.ClickHouse](query.Table("payment_attempt"), engines)
//	_ = query.ApplyScope(b, query.MerchantLevel{OrgID: "org_1", MerchantIDs: []string{"m_1", "m_2"}})
//	_ = b.AddSelectColumn(query.Count{Alias: "count"})
//	_ = b.AddGroupByClause(query.Column("currency"))
//	_ = b.AddGranularityGroupBy(query.FiveMin)
//	sql, err := b.Build()
//
// Every clause-adding call renders its arguments immediately and stores text.
// Build assembles the stored fragments in a fixed order:
// SELECT, FROM, WHERE, GROUP BY, HAVING, ORDER BY, LIMIT BY, then the outer
// select wrapper, then the top-N wrapper.
//
// # Dialect capabilities
//
// Features that only one backend supports natively are free functions
// constrained on a capability interface (SetLimitBy, AddGranularityInMinutes),
// so calling them on a Postgres builder does not compile.
//
// # Table engines
//
// Tables stored with a collapsing engine carry a sign column. Any grouped query
// against such a table gets an implicit COUNT(sign) >= '1' HAVING predicate so
// retracted rows are excluded.
//
// # Time buckets
//
// Granularity renders per-backend GROUP BY expressions and provides
// ClipToStart and ClipToEnd for aligning timestamps to bucket boundaries,
// used when filling empty buckets in a returned series.
package query
