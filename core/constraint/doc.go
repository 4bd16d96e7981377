// Package constraint evaluates feasibility of (slot, OB) pairs through an
// ordered pipeline of named predicates. Evaluation is pure: no store access,
// no mutation, and a malformed OB yields an infeasible result rather than an
// error. The first failing predicate names itself in the result so reports
// can say why an OB was kept out of a slot.
package constraint
