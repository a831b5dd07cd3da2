// Package models defines the core domain models for Splitbook.
//
// # Model Overview
//
// A Template is the reusable definition of an expense-sharing arrangement:
//   - TemplateParticipant: the people who share costs
//   - TemplateField: the cost categories on the sheet (rent, utilities, ...)
//   - SplitRule + SplitRuleAllocation: named percentage splits over participants
//
// A TemplateInstance is one concrete occurrence of a template (e.g. "March
// rent"). Costs are recorded against it as InstanceFieldValue rows, and each
// cost is divided into ParticipantEntryAmount rows, one per participant who
// owes a share.
//
// # Design Principles
//
// 1. **Opaque IDs**: all entities use UUID strings, assigned by the store
// 2. **Fixed-point money**: amounts and percents are decimal.Decimal, never float
// 3. **Avoid circular references**: relationships use ID strings instead of pointers
// 4. **Materialized allocations**: ParticipantEntryAmount rows are computed
//    once when a field value is created, not recomputed lazily on read
package models
