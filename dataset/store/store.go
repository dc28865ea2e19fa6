package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/mrasu/dset/dataset/structs"
	"github.com/pkg/errors"
)

const snapshotRecord = 1

var newLineBytes = []byte("\n")
var separatorBytes = []byte("-")

// Store appends dataset snapshots (all rows plus the pending change-set) as
// type-prefixed JSON records; loading replays the newest record.
type Store struct {
	dir        string
	fileNumber int
}

func NewStore(dir string) (*Store, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("Directory not found: %s", dir)
		}
		return nil, errors.Wrap(err, fmt.Sprintf("Invalid directory: %s", dir))
	}

	return &Store{
		dir:        dir,
		fileNumber: 0,
	}, nil
}

func (s *Store) Save(sd *structs.SnapshotData) error {
	bs, err := Encode(sd)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(s.fileName(), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	_, err = file.Write(bs)
	if err != nil {
		return errors.Wrap(err, "failed to write file")
	}
	return nil
}

// Load returns the newest stored snapshot, or nil when nothing was saved.
func (s *Store) Load() (*structs.SnapshotData, error) {
	if _, err := os.Stat(s.fileName()); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, fmt.Sprintf("Invalid file: %s", s.fileName()))
	}

	bs, err := ioutil.ReadFile(s.fileName())
	if err != nil {
		return nil, err
	}
	return Decode(bs)
}

func (s *Store) fileName() string {
	return s.dir + "/snapshot_" + strconv.Itoa(s.fileNumber) + ".log"
}

func Encode(sd *structs.SnapshotData) ([]byte, error) {
	bs, err := json.Marshal(sd)
	if err != nil {
		return nil, err
	}

	record := append([]byte(strconv.Itoa(snapshotRecord)), separatorBytes...)
	record = append(record, bs...)
	record = append(record, newLineBytes...)
	return record, nil
}

// Decode parses type-prefixed records and returns the last snapshot.
func Decode(bs []byte) (*structs.SnapshotData, error) {
	var sd *structs.SnapshotData

	lines := bytes.Split(bs, newLineBytes)
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		bb := bytes.SplitN(line, separatorBytes, 2)
		num, err := strconv.Atoi(string(bb[0]))
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("Invalid record: %s", line))
		}
		if num != snapshotRecord {
			return nil, errors.Errorf("Invalid record number: %s", line)
		}

		next := &structs.SnapshotData{}
		if err := json.Unmarshal(bb[1], next); err != nil {
			return nil, err
		}
		sd = next
	}
	return sd, nil
}
