// Package policy resolves destination-name collisions at plan time. The
// resolver checks both the file system and the names earlier items of the
// same plan have already claimed.
package policy

import (
	"github.com/ponpaku/creators-file-manager/internal/fsatomic"
	"github.com/ponpaku/creators-file-manager/internal/pathnorm"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// Resolution is the outcome of resolving one planned destination.
type Resolution struct {
	Status      types.PreviewStatus
	Destination string
	Reason      string
}

// Resolver applies one ConflictPolicy against a shared reservation set.
type Resolver struct {
	policy       types.ConflictPolicy
	reservations *fsatomic.Reservations
}

// NewResolver returns a resolver for the given policy. A zero policy
// defaults to sequence.
func NewResolver(policy types.ConflictPolicy, reservations *fsatomic.Reservations) *Resolver {
	if policy == "" {
		policy = types.ConflictSequence
	}
	return &Resolver{policy: policy, reservations: reservations}
}

// Reservations exposes the underlying set so a planner can consult it.
func (r *Resolver) Reservations() *fsatomic.Reservations {
	return r.reservations
}

// Resolve decides the destination for base. source is exempt from the
// on-disk collision check so in-place rewrites are not self-collisions.
func (r *Resolver) Resolve(base, source string) Resolution {
	collision := r.reservations.Reserved(base) ||
		(pathnorm.Exists(base) && pathnorm.Key(base) != pathnorm.Key(source))

	switch r.policy {
	case types.ConflictOverwrite:
		r.reservations.Reserve(base)
		res := Resolution{Status: types.StatusReady, Destination: base}
		if collision {
			res.Reason = "collision: destination will be overwritten"
		}
		return res

	case types.ConflictSkip:
		if collision {
			return Resolution{Status: types.StatusSkipped, Destination: base, Reason: "collision"}
		}
		r.reservations.Reserve(base)
		return Resolution{Status: types.StatusReady, Destination: base}

	default: // sequence
		unique := fsatomic.AllocateSequenced(base, source, r.reservations)
		res := Resolution{Status: types.StatusReady, Destination: unique}
		if unique != base {
			res.Reason = "collision: sequence suffix applied"
		}
		return res
	}
}

// LastWriterWins demotes all but the last ready item sharing a destination
// to skipped. Overwrite plans run through this so parallel execution stays
// deterministic.
func LastWriterWins(destinations []string, statuses []types.PreviewStatus) (skippedIdx []int) {
	last := make(map[string]int)
	for i, dest := range destinations {
		if statuses[i] != types.StatusReady || dest == "" {
			continue
		}
		last[pathnorm.Key(dest)] = i
	}
	for i, dest := range destinations {
		if statuses[i] != types.StatusReady || dest == "" {
			continue
		}
		if last[pathnorm.Key(dest)] != i {
			skippedIdx = append(skippedIdx, i)
		}
	}
	return skippedIdx
}
