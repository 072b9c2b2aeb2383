// Package normalize translates drug dosage rules and drug eligibility rules
// between the backend wire format and the shapes the console works with.
//
// Everything here is pure and never fails: malformed dates, numbers and
// missing fields degrade to nil, zero or empty lists.
package normalize
