package reconciler

import (
	"archive/tar"
	"bytes"
)

// secretsTar builds a tar archive of one file per secret, mode 0600, ready
// for CopyInto onto an agent's /agent/secrets/ directory.
func secretsTar(values map[string]string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for key, value := range values {
		hdr := &tar.Header{
			Name: key,
			Mode: 0o600,
			Size: int64(len(value)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write([]byte(value)); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
