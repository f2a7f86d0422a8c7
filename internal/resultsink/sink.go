/*
Package resultsink is an optional debugging/manual-run aid: when
configured, it persists each finished BusinessRecord as a JSON line
named by the blake3 hash of its detail URL. The engine's primary output
contract remains the returned []BusinessRecord; this sink never gates
or alters that return value.

Output Characteristics
- Stable directory layout
- Idempotent writes
- Overwrite-safe reruns
*/
package resultsink

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
	"github.com/rohmanhakim/scrapeorch/pkg/fileutil"
	"github.com/rohmanhakim/scrapeorch/pkg/hashutil"
)

type Sink interface {
	Write(outputDir string, record extractor.BusinessRecord, hashAlgo hashutil.HashAlgo) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(metadataSink metadata.MetadataSink) LocalSink {
	return LocalSink{metadataSink: metadataSink}
}

func (s LocalSink) Write(outputDir string, record extractor.BusinessRecord, hashAlgo hashutil.HashAlgo) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, record, hashAlgo)
	if err != nil {
		var sinkErr *ResultSinkError
		errors.As(err, &sinkErr)
		s.metadataSink.RecordError(metadata.ErrorRecord{
			PackageName: "resultsink",
			Action:      "LocalSink.Write",
			Cause:       mapResultSinkErrorToMetadataCause(sinkErr),
			ErrorString: err.Error(),
			ObservedAt:  time.Now(),
			Attrs: []metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, record.URL),
				metadata.NewAttr(metadata.AttrWritePath, sinkErr.Path),
			},
		})
		return WriteResult{}, sinkErr
	}
	return writeResult, nil
}

func write(outputDir string, record extractor.BusinessRecord, hashAlgo hashutil.HashAlgo) (WriteResult, failure.ClassifiedError) {
	urlHashFull, err := hashutil.HashBytes([]byte(record.URL), hashAlgo)
	if err != nil {
		return WriteResult{}, &ResultSinkError{
			Message: err.Error(), Retryable: false, Cause: ErrCauseHashComputationFailed,
		}
	}
	urlHash := urlHashFull[:12]

	if dirErr := fileutil.EnsureDir(outputDir); dirErr != nil {
		var fileErr *fileutil.FileError
		if errors.As(dirErr, &fileErr) {
			return WriteResult{}, &ResultSinkError{
				Message: dirErr.Error(), Retryable: false, Cause: ErrCausePathError, Path: outputDir,
			}
		}
		return WriteResult{}, &ResultSinkError{
			Message: dirErr.Error(), Retryable: false, Cause: ErrCauseWriteFailure, Path: outputDir,
		}
	}

	content, marshalErr := json.Marshal(record)
	if marshalErr != nil {
		return WriteResult{}, &ResultSinkError{
			Message: marshalErr.Error(), Retryable: false, Cause: ErrCauseMarshalFailure,
		}
	}
	content = append(content, '\n')

	filename := urlHash + ".jsonl"
	fullPath := filepath.Join(outputDir, filename)

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &ResultSinkError{
			Message: err.Error(), Retryable: retryable, Cause: cause, Path: fullPath,
		}
	}

	return NewWriteResult(urlHash, fullPath), nil
}
