// Package sched builds night schedules: it walks open slots chronologically,
// keeps the OBs the constraint pipeline lets through, and fills each slot
// with the highest scoring candidate. Scores combine the program weight from
// the weight table with an urgency term that grows as a target approaches
// its visibility deadline. Two strategies share that scoring: a greedy
// per-slot fill and a global score-matrix assignment.
//
// A pass never touches the queue store. It returns a proposed schedule plus
// an operator report; committing assignments is the caller's job.
package sched
