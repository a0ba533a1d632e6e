package flat

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

const (
	vectorMagic   = "ADVX"
	formatVersion = 2
	headerSize    = 4 + 4 + 4 + 8 + 16 // magic, version, dimension, count, generation
	noMetadata    = -1

	// prevSuffix names the hard link kept to the last complete file while a save renames.
	prevSuffix = ".prev"
)

// ErrCorrupt indicates unreadable or inconsistent index files.
var ErrCorrupt = errors.New("corrupt index files")

// VectorPath returns the vector matrix file for storeID.
func VectorPath(dir, storeID string) string {
	return filepath.Join(dir, storeID+"_index.vec")
}

// DataPath returns the passage data file for storeID.
func DataPath(dir, storeID string) string {
	return filepath.Join(dir, storeID+"_data.json")
}

// dataFile is the JSON layout of <storeID>_data.json.
// Metadata is de-duplicated: each passage refers to a row of the table,
// so passages that shared one metadata value before saving share it after loading.
type dataFile struct {
	Version    int                       `json:"version"`
	Generation uuid.UUID                 `json:"generation"`
	Dimension  int                       `json:"dimension"`
	Passages   []passageRecord           `json:"passages"`
	Metadata   []*domain.PassageMetadata `json:"metadata"`
}

type passageRecord struct {
	Text string `json:"text"`
	Meta int    `json:"meta"`
}

// Save writes both index files for storeID into dir, creating dir if needed.
//
// Both files carry the same generation. They are written to temporary files
// first and then renamed, data before vectors. Until both renames finish the
// previous files stay reachable under a ".prev" suffix, so Load can fall back
// to the last complete pair after a crash between the renames.
func (x *Index) Save(dir, storeID string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	gen := uuid.New()
	data := dataFile{
		Version:    formatVersion,
		Generation: gen,
		Dimension:  x.dim,
		Passages:   make([]passageRecord, len(x.passages)),
		Metadata:   []*domain.PassageMetadata{},
	}
	refs := make(map[*domain.PassageMetadata]int)
	for i, text := range x.passages {
		ref := noMetadata
		if m := x.meta[i]; m != nil {
			var ok bool
			if ref, ok = refs[m]; !ok {
				ref = len(data.Metadata)
				refs[m] = ref
				data.Metadata = append(data.Metadata, m)
			}
		}
		data.Passages[i] = passageRecord{Text: text, Meta: ref}
	}

	vecPath, dataPath := VectorPath(dir, storeID), DataPath(dir, storeID)

	vecTmp, err := writeTemp(vecPath, func(w io.Writer) error { return x.writeVectors(w, gen) })
	if err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}
	dataTmp, err := writeTemp(dataPath, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(&data)
	})
	if err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("save passages: %w", err)
	}

	for _, p := range []string{dataPath, vecPath} {
		keepPrevious(p)
	}
	if err := os.Rename(dataTmp, dataPath); err != nil {
		os.Remove(vecTmp)
		os.Remove(dataTmp)
		return fmt.Errorf("save passages: %w", err)
	}
	if err := os.Rename(vecTmp, vecPath); err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("save vectors: %w", err)
	}
	for _, p := range []string{dataPath, vecPath} {
		os.Remove(p + prevSuffix)
	}
	return nil
}

// keepPrevious hard-links path to path.prev. Without link support the
// fallback is unavailable and a torn pair is reported as corrupt.
func keepPrevious(path string) {
	prev := path + prevSuffix
	os.Remove(prev)
	if _, err := os.Stat(path); err != nil {
		return
	}
	//nolint:errcheck // best effort
	os.Link(path, prev)
}

func (x *Index) writeVectors(w io.Writer, gen uuid.UUID) error {
	header := make([]byte, headerSize)
	copy(header, vectorMagic)
	binary.LittleEndian.PutUint32(header[4:], formatVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(x.dim))
	binary.LittleEndian.PutUint64(header[12:], uint64(len(x.passages)))
	copy(header[20:], gen[:])
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 4)
	for _, f := range x.vectors {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// writeTemp writes a fsynced temp file next to path and returns its name.
func writeTemp(path string, write func(io.Writer) error) (name string, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return "", err
	}
	if err = bw.Flush(); err != nil {
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

// vectorFile is a decoded <storeID>_index.vec.
type vectorFile struct {
	generation uuid.UUID
	dim        int
	count      int
	vectors    []float32
}

// Load replaces the index state with the files for storeID in dir.
// Returns false, nil without touching state when either file is missing.
// When the two files come from different saves, the matching ".prev" file
// left by an interrupted save is used instead.
func (x *Index) Load(dir, storeID string) (bool, error) {
	vecPath, dataPath := VectorPath(dir, storeID), DataPath(dir, storeID)
	for _, p := range []string{vecPath, dataPath} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("stat %s: %w", filepath.Base(p), err)
		}
	}

	vf, err := readVectors(vecPath)
	if err != nil {
		return false, err
	}
	data, err := readData(dataPath)
	if err != nil {
		return false, err
	}
	if vf.generation != data.Generation {
		vf, data, err = previousPair(vecPath, dataPath, vf, data)
		if err != nil {
			return false, err
		}
	}

	if vf.dim != x.dim {
		return false, fmt.Errorf("%w: stored index has dimension %d, expected %d", domain.ErrDimensionMismatch, vf.dim, x.dim)
	}
	if len(data.Passages) != vf.count || data.Dimension != vf.dim {
		return false, fmt.Errorf("%w: %d vectors of dimension %d but %d passages of dimension %d",
			ErrCorrupt, vf.count, vf.dim, len(data.Passages), data.Dimension)
	}

	passages := make([]string, vf.count)
	meta := make([]*domain.PassageMetadata, vf.count)
	for i, p := range data.Passages {
		passages[i] = p.Text
		switch {
		case p.Meta == noMetadata:
		case p.Meta < 0 || p.Meta >= len(data.Metadata):
			return false, fmt.Errorf("%w: passage %d refers to metadata %d", ErrCorrupt, i, p.Meta)
		default:
			meta[i] = data.Metadata[p.Meta]
		}
	}

	x.passages = passages
	x.vectors = vf.vectors
	x.meta = meta
	return true, nil
}

// previousPair pairs each current file with the other's ".prev" file and
// returns the first pair whose generations match.
func previousPair(vecPath, dataPath string, vf *vectorFile, data *dataFile) (*vectorFile, *dataFile, error) {
	if prev, err := readData(dataPath + prevSuffix); err == nil && prev.Generation == vf.generation {
		return vf, prev, nil
	}
	if prev, err := readVectors(vecPath + prevSuffix); err == nil && prev.generation == data.Generation {
		return prev, data, nil
	}
	return nil, nil, fmt.Errorf("%w: vector and passage files come from different saves", ErrCorrupt)
}

func readVectors(path string) (*vectorFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	return decodeVectors(raw)
}

func readData(path string) (*dataFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read passages: %w", err)
	}
	var data dataFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: decode passages: %w", ErrCorrupt, err)
	}
	if data.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported data version %d", ErrCorrupt, data.Version)
	}
	return &data, nil
}

func decodeVectors(raw []byte) (*vectorFile, error) {
	if len(raw) < headerSize || string(raw[:4]) != vectorMagic {
		return nil, fmt.Errorf("%w: bad vector file header", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(raw[4:]); v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported vector version %d", ErrCorrupt, v)
	}
	vf := &vectorFile{dim: int(binary.LittleEndian.Uint32(raw[8:]))}
	n := binary.LittleEndian.Uint64(raw[12:])
	copy(vf.generation[:], raw[20:headerSize])

	body := raw[headerSize:]
	if vf.dim <= 0 || uint64(len(body)) != n*uint64(vf.dim)*4 {
		return nil, fmt.Errorf("%w: vector file size does not match header", ErrCorrupt)
	}

	vf.count = int(n)
	vf.vectors = make([]float32, len(body)/4)
	for i := range vf.vectors {
		vf.vectors[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return vf, nil
}
