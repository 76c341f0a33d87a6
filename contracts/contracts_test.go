package contracts

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFiles(t *testing.T) {
	fsys := fstest.MapFS{}

	// Missing NEF.
	_, err := Read(fsys, RelayDir)
	require.Error(t, err)

	// Missing manifest.
	fsys[RelayDir+"/"+nefName] = &fstest.MapFile{}
	_, err = Read(fsys, RelayDir)
	require.Error(t, err)
}

func TestReadInvalidFormat(t *testing.T) {
	var (
		fsys         = fstest.MapFS{}
		nefPath      = RelayDir + "/" + nefName
		manifestPath = RelayDir + "/" + manifestName
	)

	expNEF, validNEF := anyValidNEF(t)
	expManifest, validManifest := anyValidManifest(t, "Payment Relay")

	fsys[nefPath] = &fstest.MapFile{Data: validNEF}
	fsys[manifestPath] = &fstest.MapFile{Data: validManifest}

	c, err := Read(fsys, RelayDir)
	require.NoError(t, err)
	require.Equal(t, expNEF.Checksum, c.NEF.Checksum)
	require.Equal(t, expManifest.Name, c.Manifest.Name)

	fsys[nefPath] = &fstest.MapFile{Data: []byte("not a NEF")}

	_, err = Read(fsys, RelayDir)
	require.ErrorIs(t, err, errInvalidNEF)

	fsys[nefPath] = &fstest.MapFile{Data: validNEF}
	fsys[manifestPath] = &fstest.MapFile{Data: []byte("not a manifest")}

	_, err = Read(fsys, RelayDir)
	require.ErrorIs(t, err, errInvalidManifest)
}

func TestReadRootDir(t *testing.T) {
	_, validNEF := anyValidNEF(t)
	_, validManifest := anyValidManifest(t, "root")

	fsys := fstest.MapFS{
		nefName:      &fstest.MapFile{Data: validNEF},
		manifestName: &fstest.MapFile{Data: validManifest},
	}

	c, err := Read(fsys, ".")
	require.NoError(t, err)
	require.Equal(t, "root", c.Manifest.Name)
}

func anyValidNEF(tb testing.TB) (nef.File, []byte) {
	script := make([]byte, 32)

	_nef, err := nef.NewFile(script)
	require.NoError(tb, err)

	bNEF, err := _nef.Bytes()
	require.NoError(tb, err)

	return *_nef, bNEF
}

func anyValidManifest(tb testing.TB, name string) (manifest.Manifest, []byte) {
	_manifest := manifest.NewManifest(name)

	jManifest, err := json.Marshal(_manifest)
	require.NoError(tb, err)

	return *_manifest, jManifest
}
