package terrain

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ParseASCIIGrid reads an ESRI ASCII raster (.asc). Both the corner and the
// centre variants of the origin header are accepted.
func ParseASCIIGrid(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	header := map[string]float64{}
	var first string
	for sc.Scan() {
		tok := sc.Text()
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			first = tok
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: header %q has no value", ErrInvalidGrid, tok)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: header %q: %v", ErrInvalidGrid, tok, err)
		}
		header[strings.ToLower(tok)] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	cols, rows := int(header["ncols"]), int(header["nrows"])
	cell := header["cellsize"]
	for _, k := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := header[k]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidGrid, k)
		}
	}

	west, okW := header["xllcorner"]
	south, okS := header["yllcorner"]
	if !okW || !okS {
		xc, okX := header["xllcenter"]
		yc, okY := header["yllcenter"]
		if !okX || !okY {
			return nil, fmt.Errorf("%w: missing origin", ErrInvalidGrid)
		}
		west, south = xc-cell/2, yc-cell/2
	}

	noData := math.NaN()
	if v, ok := header["nodata_value"]; ok {
		noData = v
	}

	heights := make([]float64, 0, max(cols*rows, 0))
	if first != "" {
		v, _ := strconv.ParseFloat(first, 64)
		heights = append(heights, v)
	}
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %v", ErrInvalidGrid, len(heights), err)
		}
		heights = append(heights, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return NewGrid(west, south, cell, cols, rows, heights, noData)
}

// LoadASCIIGrid opens and parses an ESRI ASCII raster file.
func LoadASCIIGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := ParseASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}
