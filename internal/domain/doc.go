// Package domain models country/year climate indicators and the composite
// risk score derived from them.
//
// # Data Source
//
// The raw dataset is the Kaggle "Global Climate Risk Index and Related Economic
// Losses" table (thedevastator/global-climate-risk-index-and-related-economic-l).
// It is fetched as a zip archive, extracted into the raw directory, and read as
// CSV by the csvsource adapter.
//
// # Column Conventions
//
// Header names are normalized before matching: lowercased, every run of
// non-alphanumeric characters replaced with "_", leading/trailing "_" trimmed.
//
//	"Temperature Anomaly (°C)"  →  "temperature_anomaly_c"
//	"RW Country Name"           →  "rw_country_name"
//
// Each canonical indicator accepts a list of aliases; the first alias present
// wins. The Kaggle release has no climate columns proper, so its CRI score,
// economic losses and fatalities columns stand in for temperature anomaly,
// CO2 emission and sea level respectively (see [DefaultSchema]).
//
// Missing values:
//
//	Empty cells and the tokens NA, N/A, NaN, null and "-" are treated as
//	missing. Values may carry a trailing "%" and are then divided by 100.
//	Infinite values are malformed, like any other non-numeric text.
//
// # Scoring
//
//	risk_score = 0.5·temp_anomaly_z + 0.3·co2_growth_norm + 0.2·sea_level_z
//
// Weights, normalization scope and growth method are carried by
// [ScoringConfig] so the formula can change without code changes:
//
//	z-score:    (x − mean) / σ, population σ (ddof=0); σ = 0 divides by 1.
//	percentile: average rank / n over the scope, in (0, 1].
//	minmax:     (x − min) / (max − min), 0 when every value is equal.
//
// Scope "year" (default) compares countries within the same year; "country"
// compares a country with its own history; "global" uses the whole dataset.
//
// # Missing-value Policy
//
// Missing indicators are dropped by default. "impute_zero" fills 0 and
// "impute_mean" fills the mean of the indicator within the normalization
// scope. Statistics are computed only over rows that survive the policy, so
// dropping a row changes its peers' scores.
package domain
