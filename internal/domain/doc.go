// Package domain models the daily locality report: the served localities,
// the prompt sent to the text-generation service and the validated record
// published for the static frontend.
//
// # Localities
//
// The served localities form a closed catalog authored by hand in
// localities.yaml and embedded in the binary. Each record carries the
// verified facts the report must quote verbatim: the highlighted event of
// the day and the on-duty service block (pharmacy name, address, phone and
// map link, already written as Markdown links). A lookup for an unknown id
// fails with [UnknownLocalityError]; there is no fuzzy match and no default
// locality.
//
// # Civil time
//
// "Today", "tomorrow", the per-day store keys and the record timestamp are
// computed in a fixed civil timezone ([DefaultCivilTimezone]), never in the
// host's local zone. A host running in UTC at 01:30 on the 16th is still on
// the 15th in Córdoba (UTC-3).
//
// Dates shown to the model are rendered in Spanish:
//
//	jueves 15 de octubre de 2026
//
// # Prompt
//
// [PromptCompiler.Compile] is a pure function of a [ReportRequest]: the same
// locality, previous-day summary and instant always produce the same text.
// The prompt lists the required categories by their exact names and asks
// for a bare JSON object:
//
//	{"title": "...", "lastUpdated": "...", "categories": [{"name": "...", "content": "..."}]}
//
// # Normalization
//
// Language models often wrap JSON in a Markdown fence:
//
//	```json
//	{"title": "..."}
//	```
//
// [StripFence] removes an opening fence line (with an optional language tag)
// and a closing fence marker. [Normalizer.Normalize] then parses the text
// strictly, validates it against the report schema, requires every category
// from [RequiredCategories] (unrequested ones are dropped) and overwrites
// lastUpdated with the local clock. Any failure is a [MalformedResponseError]
// carrying a truncated excerpt of the offending text; nothing is partially
// recovered.
package domain
