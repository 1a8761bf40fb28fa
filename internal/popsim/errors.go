package popsim

import "errors"

var (
	// ErrInvalidRate indicates a reaction or hop rate that is negative or not finite.
	ErrInvalidRate = errors.New("popsim: invalid rate")
	// ErrUnknownSpecies indicates a reference to a species that is not registered.
	ErrUnknownSpecies = errors.New("popsim: unknown species")
	// ErrCapacityExceeded is returned when an explicit placement would push a site over its carrying capacity.
	ErrCapacityExceeded = errors.New("popsim: carrying capacity exceeded")
	// ErrInvalidSize indicates lattice dimensions smaller than one site.
	ErrInvalidSize = errors.New("popsim: invalid lattice size")
	// ErrInvalidDensity indicates an initial density that is negative or not finite.
	ErrInvalidDensity = errors.New("popsim: invalid initial density")
	// ErrInvalidCapacity indicates a negative carrying capacity.
	ErrInvalidCapacity = errors.New("popsim: invalid carrying capacity")
	// ErrDuplicateSpecies indicates two species registered under the same name, or an empty name.
	ErrDuplicateSpecies = errors.New("popsim: duplicate or empty species name")
	// ErrInvalidReaction indicates a malformed reaction rule (unknown kind, missing or stray prey).
	ErrInvalidReaction = errors.New("popsim: invalid reaction")
	// ErrSiteOutOfRange indicates a site coordinate outside the lattice.
	ErrSiteOutOfRange = errors.New("popsim: site out of range")
	// ErrNegativeCount is returned when a lattice mutation would drive a count below zero.
	ErrNegativeCount = errors.New("popsim: occupant count would become negative")
	// ErrInvalidSnapshot indicates a snapshot that does not match the world it is applied to.
	ErrInvalidSnapshot = errors.New("popsim: invalid snapshot")
	// ErrNoSnapshotDir indicates a snapshot operation on a world without a snapshot directory.
	ErrNoSnapshotDir = errors.New("popsim: snapshot directory not configured")
	// ErrWorldExists indicates a world ID collision in the manager.
	ErrWorldExists = errors.New("popsim: world already exists")
	// ErrWorldNotFound indicates a lookup of an unknown world ID.
	ErrWorldNotFound = errors.New("popsim: world not found")
)
