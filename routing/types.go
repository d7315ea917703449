package routing

// The teacher's WriteOperationPolicy/ReadOperationPolicy (ack-level, read
// strategy) only made sense when the Replication/Fetching executors fanned a
// single logical operation out across several replica backends. That model
// is gone: store.Manager addresses one object tier and one KV tier, so there
// is nothing left to choose an ack level or a read strategy over. Both types,
// and the ReplicationExecutor/FetchingExecutor interfaces they parameterized,
// are dropped rather than carried forward as dead configuration surface.
