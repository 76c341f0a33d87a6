/*
Package contracts provides access to compiled contracts of the repository.

Compiled artifacts are produced by `make build` and placed next to the
contract sources: <dir>/contract.nef and <dir>/manifest.json.
*/
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
)

const (
	// RelayDir is a directory of the Payment Relay contract relative to
	// the repository root.
	RelayDir = "contracts/relay"

	nefName      = "contract.nef"
	manifestName = "manifest.json"
)

// Contract groups information about compiled Neo contract.
type Contract struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

var (
	errInvalidNEF      = errors.New("invalid NEF")
	errInvalidManifest = errors.New("invalid manifest")
)

// Read reads compiled contract from the given directory of fsys. Directory
// must contain contract.nef and manifest.json files.
func Read(fsys fs.FS, dir string) (Contract, error) {
	c, err := readContractFromDir(fsys, dir)
	if err != nil {
		return c, fmt.Errorf("read contract %s: %w", dir, err)
	}

	return c, nil
}

func readContractFromDir(fsys fs.FS, dir string) (Contract, error) {
	var c Contract

	// fs.FS always uses "/" separator, so filepath.Join() is not applicable.
	fNEF, err := fsys.Open(path.Join(dir, nefName))
	if err != nil {
		return c, fmt.Errorf("open NEF: %w", err)
	}
	defer fNEF.Close()

	fManifest, err := fsys.Open(path.Join(dir, manifestName))
	if err != nil {
		return c, fmt.Errorf("open manifest: %w", err)
	}
	defer fManifest.Close()

	bReader := io.NewBinReaderFromIO(fNEF)
	c.NEF.DecodeBinary(bReader)
	if bReader.Err != nil {
		return c, fmt.Errorf("%w: %w", errInvalidNEF, bReader.Err)
	}

	err = json.NewDecoder(fManifest).Decode(&c.Manifest)
	if err != nil {
		return c, fmt.Errorf("%w: %w", errInvalidManifest, err)
	}

	return c, nil
}
