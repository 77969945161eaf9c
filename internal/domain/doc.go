// Package domain models the Paris 2024 medal datasets and the chart documents
// derived from them.
//
// # Data Source
//
// Two CSV tables are read per render cycle:
//
//	medallists.csv   one row per medal per athlete (team medals repeat per member)
//	medals_total.csv one row per country, pre-sorted by Total descending
//
// Columns are matched by header name, so extra columns and any column order
// are accepted. Only the columns listed on [MedalRecord] and [CountryTotal]
// are read.
//
// # Conventions
//
// Medal tier:
//
//	The medal_type column carries the full label: "Gold Medal", "Silver Medal"
//	or "Bronze Medal". Any other value parses as [TierUnknown]; such rows are
//	ignored by the flow graph and score zero in the scatter.
//
// Country code:
//
//	IOC three-letter code, e.g. "USA", "CHN", "GBR". The world map joins these
//	against GeoJSON feature ids, which use ISO 3166-1 alpha-3. The two schemes
//	agree for most countries; the ones that differ (e.g. "NED"/"NLD") render
//	with the no-data color, as they did in the original dashboard.
//
// Birth date:
//
//	Usually "YYYY-MM-DD". Only the year is used, to derive an age relative to
//	a reference year (2024 by default). Rows whose year cannot be read are
//	dropped from the scatter and do not affect anything else.
//
// # Distinct Results
//
// A team event awards one medal but produces one medallist row per member.
// The flow graph counts distinct (event, medal tier) pairs so that a relay
// gold counts once. The scatter counts per athlete, so every member of a
// relay scores the medal.
package domain
