package fasta

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// GenerateIndex writes the samtools faidx index (*.fai) for the FASTA data in
// in.  The index can later be passed to NewIndexed() for random access.
func GenerateIndex(out io.Writer, in io.Reader) (err error) {
	var (
		tsvOut = tsv.NewWriter(out)
		r      = bufio.NewReader(in)
		cur    struct {
			name      string
			offset    int64
			bases     int
			lineBases int
			width     int
		}
		nRead int64
		eof   bool
	)
	setErr := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}
	emit := func() {
		tsvOut.WriteString(cur.name)
		tsvOut.WriteInt64(int64(cur.bases))
		tsvOut.WriteInt64(cur.offset)
		tsvOut.WriteInt64(int64(cur.lineBases))
		tsvOut.WriteInt64(int64(cur.width))
		setErr(tsvOut.EndLine())
	}
	for !eof && err == nil {
		fullLine, e := r.ReadBytes('\n')
		if e == io.EOF {
			eof = true
		} else if e != nil {
			setErr(e)
		}
		nRead += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if cur.width != 0 {
				if cur.name == "" {
					setErr(errors.E("malformed FASTA file"))
				}
				emit()
			}
			cur.name = strings.Split(string(line[1:]), " ")[0]
			cur.offset = nRead
			cur.bases, cur.lineBases, cur.width = 0, 0, 0
			continue
		}
		if cur.width == 0 {
			cur.width = len(fullLine)
			cur.lineBases = len(line)
		}
		cur.bases += len(line)
	}
	if nRead == 0 {
		setErr(errors.E("empty FASTA file"))
		return
	}
	emit()
	setErr(tsvOut.Flush())
	return
}

// WriteIndex generates path+".fai" for the uncompressed FASTA file at path.
func WriteIndex(ctx context.Context, path string) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "fasta.WriteIndex", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, path+".fai")
	if err != nil {
		return errors.E(err, "fasta.WriteIndex", path+".fai")
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = GenerateIndex(out.Writer(ctx), in.Reader(ctx)); err != nil {
		return errors.E(err, "fasta.WriteIndex", path)
	}
	return nil
}
