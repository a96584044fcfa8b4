// Package validator implements the row rule sets for the audited sheets.
//
// Each sheet kind has its own RowValidator: Sales checks pricing, payment
// and process discipline; Trainings checks shift staffing, statuses and
// subscription follow-ups; Leads checks that inquiries and client records
// are complete. The shared driver in Validate handles the header check and
// row iteration so the rule sets only describe what is wrong with one row.
//
// Validators never fail. Every problem they detect is returned as a
// model.Finding; structural problems (a required column is missing)
// short-circuit to a single sheet-level finding.
package validator
