// Package voteledger implements the vote session ledger inside the
// election-core context.
//
// The module owns session creation, ballot validation and scoring for the
// single, multiple and ranked modes, exactly-once voter bookkeeping, and the
// read-only results surface. Accepted changes are persisted together with an
// outbox event; workers relay the outbox to the bus and close sessions whose
// end time has passed.
package voteledger
