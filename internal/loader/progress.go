package loader

import "io"

// progressReader reports the running byte count after every read.
type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    func(read, total int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.fn(pr.read, pr.total)
	}
	return n, err
}
