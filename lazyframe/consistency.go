package lazyframe

import "context"

// ConsistencyLevel selects the database node a Library may read from.
type ConsistencyLevel int

const (
	// StrongConsistency reads from the primary, so a Collect right after a Write sees the
	// new version. It is the default when a context carries no level.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency lets engines with a replica read from it. Pinned reads (AtVersion,
	// AtTime) return the same rows on every node once replication caught up.
	EventualConsistency
)

type consistencyKey struct{}

// WithStrongConsistency pins reads under ctx to the primary.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyKey{}, StrongConsistency)
}

// WithEventualConsistency allows reads under ctx to go to a replica.
//
//	lf := lazyframe.Lazy(lib, "prices", lazyframe.WithAsOf(lazyframe.AtVersion(3)))
//	item, err := lf.Collect(lazyframe.WithEventualConsistency(ctx))
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyKey{}, EventualConsistency)
}

// GetConsistencyLevel returns the level stored in ctx, StrongConsistency if there is none.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	level, ok := ctx.Value(consistencyKey{}).(ConsistencyLevel)
	if !ok {
		return StrongConsistency
	}

	return level
}

// ReadsFromReplica reports whether ctx allows a replica read.
func ReadsFromReplica(ctx context.Context) bool {
	return GetConsistencyLevel(ctx) == EventualConsistency
}

func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
