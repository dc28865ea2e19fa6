package store

import (
	"io"
	"io/ioutil"

	"github.com/mrasu/dset/dataset/structs"
)

// Memory buffers encoded snapshot records in process. It backs tests and
// callers that persist through their own channel instead of the file store.
type Memory struct {
	Records [][]byte

	pos int
}

func (m *Memory) Write(p []byte) (int, error) {
	m.Records = append(m.Records, p)
	return len(p), nil
}

func (m *Memory) Read(p []byte) (int, error) {
	pos := 0
	pNum := 0
	for _, record := range m.Records {
		if pos+len(record) > m.pos {
			for _, b := range record[m.pos-pos:] {
				p[pNum] = b
				pNum += 1
				m.pos += 1
				if pNum == len(p) {
					return pNum, nil
				}
			}
		}
		pos += len(record)
	}

	if pNum == 0 {
		return 0, io.EOF
	}
	return pNum, nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) Clear() {
	m.Records = [][]byte{}
	m.pos = 0
}

// WriteTo appends one encoded snapshot record to w.
func WriteTo(w io.Writer, sd *structs.SnapshotData) error {
	bs, err := Encode(sd)
	if err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}

// ReadFrom decodes the newest snapshot from r.
func ReadFrom(r io.Reader) (*structs.SnapshotData, error) {
	bs, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(bs)
}
