package mock

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/fhuszti/skillswap-media-ms/internal/port"
)

// Storage implements port.Storage in memory for tests.
type Storage struct {
	mu sync.Mutex

	// stored values
	Objects     map[string][]byte
	ContentType map[string]string
	StatInfoOut port.FileInfo

	// captured inputs
	RemovedPrefixes []string

	// errors
	InitBucketErr   error
	SaveErr         error
	StatErr         error
	RemoveErr       error
	RemovePrefixErr error
	// SaveErrAfter fails every save once that many have succeeded; zero disables it.
	SaveErrAfter int

	// call flags
	InitBucketCalled bool
	SaveCalls        int
	StatCalled       bool
	RemoveCalled     bool
}

func (m *Storage) InitBucket(bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitBucketCalled = true
	return m.InitBucketErr
}

func (m *Storage) SaveFile(ctx context.Context, bucket, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil && (m.SaveErrAfter == 0 || m.SaveCalls > m.SaveErrAfter) {
		return m.SaveErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if m.Objects == nil {
		m.Objects = map[string][]byte{}
		m.ContentType = map[string]string{}
	}
	m.Objects[bucket+"/"+fileKey] = data
	m.ContentType[bucket+"/"+fileKey] = opts["Content-Type"]
	return nil
}

func (m *Storage) StatFile(ctx context.Context, bucket, fileKey string) (port.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatCalled = true
	return m.StatInfoOut, m.StatErr
}

func (m *Storage) RemoveFile(ctx context.Context, bucket, fileKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalled = true
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.Objects, bucket+"/"+fileKey)
	return nil
}

func (m *Storage) RemovePrefix(ctx context.Context, bucket, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemovedPrefixes = append(m.RemovedPrefixes, bucket+"/"+prefix)
	if m.RemovePrefixErr != nil {
		return m.RemovePrefixErr
	}
	for k := range m.Objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			delete(m.Objects, k)
		}
	}
	return nil
}

func (m *Storage) PublicURL(bucket, fileKey string) string {
	return "https://files.example/" + bucket + "/" + fileKey
}

// Keys returns the stored object keys.
func (m *Storage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Objects))
	for k := range m.Objects {
		keys = append(keys, k)
	}
	return keys
}
