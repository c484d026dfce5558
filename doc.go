// Package packer packs the MAESTRO piano dataset into per-recording HDF5
// files for training source-separation models.
//
// Each selected recording is decoded, mapped to the requested channel count,
// resampled with a polyphase Kaiser filter, quantized to int16 and written to
// <hdf5s_dir>/<stem>.h5.
//
// # Quick Start
//
//	params := packer.Params{
//	    DatasetDir: "./datasets/maestro/dataset_root",
//	    Split:      "train",
//	    SourceType: "piano",
//	    HDF5sDir:   packer.HDF5sDir("./workspaces/instruments_separation", "piano_solo", "train", 44100, 2),
//	    SampleRate: 44100,
//	    Channels:   2,
//	}
//	report, err := packer.Pack(ctx, params, packer.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("packed %d of %d recordings\n", report.Packed, report.Total)
//
// # File Layout
//
//	/            attrs: audio_name (string), sample_rate (int32)
//	/piano       int16 dataset, shape (channels, samples)
//
// # Failures
//
// A recording that fails to decode or write does not stop the run. Pack
// returns an error wrapping [ErrPackFailed] that joins every per-recording
// error, together with a [Report] listing all outcomes.
package packer
