package projection

import (
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/patina-dev/patina/internal/types"
)

// Save persists a trained Projection into the single-row projections
// table, replacing whatever was there — the Trainer always retrains
// from scratch against the current pair set rather than fine-tuning an
// existing matrix.
func Save(db *sql.DB, proj types.Projection) error {
	_, err := db.Exec(`
		INSERT INTO projections (id, d_in, d_out, matrix, pairs_count, loss, epoch, base_model_id, low_signal)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			d_in=excluded.d_in, d_out=excluded.d_out, matrix=excluded.matrix,
			pairs_count=excluded.pairs_count, loss=excluded.loss, epoch=excluded.epoch,
			base_model_id=excluded.base_model_id, low_signal=excluded.low_signal`,
		proj.DIn, proj.DOut, encodeMatrix(proj.Matrix), proj.PairsCount, proj.Loss, proj.Epoch,
		proj.BaseModelID, boolToInt(proj.LowSignal))
	return err
}

// Load reads the current trained Projection, or a zero-value Projection
// (empty matrix) if none has been trained yet — callers treat that as
// "apply no projection, pass the raw embedding through."
func Load(db *sql.DB) (types.Projection, error) {
	var proj types.Projection
	var matrix []byte
	var lowSignal int
	err := db.QueryRow(`SELECT d_in, d_out, matrix, pairs_count, loss, epoch, base_model_id, low_signal FROM projections WHERE id = 1`).
		Scan(&proj.DIn, &proj.DOut, &matrix, &proj.PairsCount, &proj.Loss, &proj.Epoch, &proj.BaseModelID, &lowSignal)
	if err == sql.ErrNoRows {
		return types.Projection{}, nil
	}
	if err != nil {
		return types.Projection{}, err
	}
	proj.Matrix = decodeMatrix(matrix)
	proj.LowSignal = lowSignal != 0
	return proj, nil
}

func encodeMatrix(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeMatrix(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
