package packer

// Parameter limits
const (
	minSampleRate = 8000
	maxSampleRate = 384000
	maxChannels   = 8
)

// Output layout
const (
	hdf5Ext    = ".h5"
	tempSuffix = ".tmp"
	hdf5sDir   = "hdf5s"
	dirPerm    = 0o755
	filePerm   = 0o644
)
