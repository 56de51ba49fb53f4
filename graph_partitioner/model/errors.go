package model

import "github.com/pkg/errors"

// Errors returned to callers. They are always wrapped with context, so match
// them with errors.Is.
var (
	ErrVertexNotFound      = errors.New("vertex not found")
	ErrPartitionNotFound   = errors.New("partition not found")
	ErrVertexExists        = errors.New("vertex already exists")
	ErrSelfFriendship      = errors.New("vertex can't befriend itself")
	ErrNoPartition         = errors.New("no partition exists")
	ErrNotEnoughPartitions = errors.New("not enough partitions to hold replicas")
	ErrLastPartition       = errors.New("can't remove the last partition holding masters")
	ErrInconsistentInput   = errors.New("inconsistent initial state")
)

func VertexNotFound(id VertexId) error {
	return errors.Wrapf(ErrVertexNotFound, "vertex %d", id)
}

func PartitionNotFound(id PartitionId) error {
	return errors.Wrapf(ErrPartitionNotFound, "partition %d", id)
}
