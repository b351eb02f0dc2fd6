package storage

import (
	"github.com/Masterminds/semver/v3"
	"github.com/NethermindEth/statedb/core"
)

// CurrentVersion is the layout written by this binary. Minor versions only add tables.
var CurrentVersion = core.Version{Major: 1, Minor: 0}

const stateVersionKey = "state"

func semverOf(v core.Version) *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), 0, "", "")
}

// checkVersion records current on an empty database, upgrades an older minor version in
// place and rejects anything this binary cannot read.
func (t *WriteTxn) checkVersion(current core.Version) error {
	stored, found, err := storageVersionTable.Get(t.batch, stateVersionKey)
	if err != nil {
		return err
	}
	if !found {
		t.storage.log.Debugw("Initialising storage version", "version", current)
		return storageVersionTable.Upsert(t.batch, stateVersionKey, current)
	}

	storedVer, currentVer := semverOf(stored), semverOf(current)
	switch {
	case storedVer.Major() != currentVer.Major(), storedVer.GreaterThan(currentVer):
		return &StorageVersionError{Stored: stored, Current: current}
	case storedVer.LessThan(currentVer):
		t.storage.log.Infow("Upgrading storage version", "from", stored, "to", current)
		return storageVersionTable.Upsert(t.batch, stateVersionKey, current)
	}
	return nil
}

// StorageVersion returns the recorded layout version.
func (t *ReadTxn) StorageVersion() (core.Version, bool, error) {
	return storageVersionTable.Get(t.reader, stateVersionKey)
}
