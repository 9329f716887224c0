// Package clusterfile reads and writes the text cluster-assignment
// format: a cluster count, a face count, then one cluster id per line,
// one line per face.
package clusterfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Read parses a cluster assignment file, returning the declared cluster
// count and a per-face cluster-id slice.
func Read(r io.Reader) (clusterCount int, assignment []int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		return 0, nil, errors.New("clusterfile: missing cluster count line")
	}
	clusterCount, err = strconv.Atoi(sc.Text())
	if err != nil {
		return 0, nil, errors.Wrap(err, "clusterfile: cluster count")
	}

	if !sc.Scan() {
		return 0, nil, errors.New("clusterfile: missing face count line")
	}
	faceCount, err := strconv.Atoi(sc.Text())
	if err != nil {
		return 0, nil, errors.Wrap(err, "clusterfile: face count")
	}

	assignment = make([]int, faceCount)
	for i := 0; i < faceCount; i++ {
		if !sc.Scan() {
			return 0, nil, errors.Errorf("clusterfile: expected %d cluster ids, found %d", faceCount, i)
		}
		cid, err := strconv.Atoi(sc.Text())
		if err != nil {
			return 0, nil, errors.Wrapf(err, "clusterfile: cluster id for face %d", i)
		}
		assignment[i] = cid
	}
	if err := sc.Err(); err != nil {
		return 0, nil, errors.Wrap(err, "clusterfile: reading body")
	}
	return clusterCount, assignment, nil
}

// Write emits a cluster assignment file for the given cluster count and
// per-face cluster ids.
func Write(w io.Writer, clusterCount int, assignment []int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, clusterCount)
	fmt.Fprintln(bw, len(assignment))
	for _, cid := range assignment {
		fmt.Fprintln(bw, cid)
	}
	return errors.Wrap(bw.Flush(), "clusterfile: writing body")
}
