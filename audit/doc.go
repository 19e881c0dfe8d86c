// Package audit records who touched private post content and when.
//
// Entries are grouped by calendar day into logs/access/access_YYYYMMDD.json,
// each file a JSON list. The Auditor is best effort: a day file that cannot
// be parsed is moved aside to access_YYYYMMDD.json.corrupt-<unix> and a new
// list is started, and write failures are logged instead of returned.
package audit
