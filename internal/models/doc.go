// Package models defines the core domain models for godutch.
//
// # Receipt Models
//
// The receipt models describe what the Receipt Source extracted from an image:
//   - ReceiptAnalysisResult: items, additional costs, total and currency
//   - ReceiptItem: one line on the receipt (price is the line total)
//   - AdditionalCost: a surcharge, tip or tax line
//
// Receipt models are immutable once received. Nothing in this module edits
// prices or items after extraction.
//
// # Session Models
//
// A Session carries the state of one split from upload to cost breakdown:
//   - Participant: a named person, identified by "person-<index>"
//   - Assignment: the set of participants responsible for one charge
//   - PersonCost: a derived per-person total (never stored)
//
// # Design Principles
//
//  1. Derived values (person costs, unclaimed amount) are recomputed from
//     assignments on every read and never persisted.
//  2. Relationships use ID strings instead of pointers.
//  3. Charge IDs are synthetic ("item-<i>", "additional-cost-<j>") so they
//     stay stable for the lifetime of a receipt.
package models
