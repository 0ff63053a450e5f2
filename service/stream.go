package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"videohub/config"
	"videohub/constant"
)

// StreamInfo describes the byte window a stream covers, for response
// header construction.
type StreamInfo struct {
	Size    int64
	Start   int64
	End     int64
	Partial bool
}

func (i StreamInfo) ContentLength() int64 {
	return i.End - i.Start + 1
}

func (i StreamInfo) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", i.Start, i.End, i.Size)
}

type StreamService struct {
	mediaDir string
}

func NewStreamService(cfg config.Storage) *StreamService {
	return &StreamService{mediaDir: cfg.MediaDir}
}

// OpenStream resolves filename inside the serving directory and returns a
// reader over the requested byte window. rangeHeader is the raw Range
// request header, empty when absent. The caller owns the returned reader
// and must close it on every path.
func (s *StreamService) OpenStream(ctx context.Context, filename, rangeHeader string) (io.ReadCloser, StreamInfo, error) {
	path := filepath.Join(s.mediaDir, filepath.Base(filename))

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, StreamInfo{}, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, StreamInfo{}, fmt.Errorf("stat %s: %w", filename, err)
	}

	info := StreamInfo{Size: stat.Size(), Start: 0, End: stat.Size() - 1}
	if rangeHeader != "" {
		info.Start, info.End, err = ParseRange(rangeHeader, info.Size)
		if err != nil {
			return nil, StreamInfo{}, err
		}
		info.Partial = true
	}

	stream, err := OpenFileStream(path, info.Start, info.End)
	if err != nil {
		return nil, StreamInfo{}, fmt.Errorf("open %s: %w", filename, err)
	}

	return stream, info, nil
}

// ParseRange parses a "bytes=<start>-<end>" header against a file of the
// given size. Either bound may be omitted: start defaults to 0, end to
// size-1. An end past the file is clamped; a start past the end or the
// file is rejected.
func ParseRange(header string, size int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrRangeNotSatisfiable, header)
	}

	bounds := strings.SplitN(spec, "-", 2)
	if len(bounds) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrRangeNotSatisfiable, header)
	}

	start, end = 0, size-1
	if bounds[0] != "" {
		if start, err = strconv.ParseInt(bounds[0], 10, 64); err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrRangeNotSatisfiable, header)
		}
	}
	if bounds[1] != "" {
		if end, err = strconv.ParseInt(bounds[1], 10, 64); err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrRangeNotSatisfiable, header)
		}
	}

	if end > size-1 {
		end = size - 1
	}
	if start < 0 || start > end || start >= size {
		return 0, 0, fmt.Errorf("%w: %q against size %d", ErrRangeNotSatisfiable, header, size)
	}

	return start, end, nil
}

// FileStream reads a bounded window of an open file. Close always releases
// the handle, including on early termination.
type FileStream struct {
	f         *os.File
	remaining int64
}

func OpenFileStream(path string, start, end int64) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &FileStream{f: f, remaining: end - start + 1}, nil
}

func (fs *FileStream) Read(p []byte) (int, error) {
	if fs.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > fs.remaining {
		p = p[:fs.remaining]
	}
	n, err := fs.f.Read(p)
	fs.remaining -= int64(n)
	return n, err
}

func (fs *FileStream) Close() error {
	return fs.f.Close()
}

// Copy drains src into w one chunk at a time, flushing each chunk so bytes
// reach the client as soon as they are read. It stops when ctx is
// cancelled, which is how a client disconnect terminates the loop.
func (s *StreamService) Copy(ctx context.Context, w io.Writer, src io.Reader) error {
	buf := make([]byte, constant.StreamChunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if fl, ok := w.(http.Flusher); ok {
				fl.Flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
