package splat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ColumnNames is the column manifest the converter expects, in order.
var ColumnNames = [14]string{
	"x", "y", "z",
	"scale_0", "scale_1", "scale_2",
	"f_dc_0", "f_dc_1", "f_dc_2", "opacity",
	"rot_0", "rot_1", "rot_2", "rot_3",
}

// columnSource maps each column to its index in Record.Packed. The single
// log-scale feeds all three scale columns.
var columnSource = [14]int{0, 1, 2, 3, 3, 3, 4, 5, 6, 7, 8, 9, 10, 11}

// ScriptDigits is the number of fractional digits written for every value.
const ScriptDigits = 6

const scriptHeader = `class Generator {
    constructor() {
        this.count = %d;

        this.columnNames = [
            'x', 'y', 'z',
            'scale_0', 'scale_1', 'scale_2',
            'f_dc_0', 'f_dc_1', 'f_dc_2', 'opacity',
            'rot_0', 'rot_1', 'rot_2', 'rot_3'
        ];

        // [x, y, z, log_scale, f_dc_0, f_dc_1, f_dc_2, opacity, rot_0, rot_1, rot_2, rot_3]
        const samples = [
`

const scriptFooter = `    }

    static create(params) {
        return new Generator();
    }
}

export { Generator };
`

// WriteScript writes the generator module for records. Output is
// byte-for-byte reproducible for identical records.
func WriteScript(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, scriptHeader, len(records))

	buf := make([]byte, 0, 256)
	for i, r := range records {
		buf = append(buf[:0], "            ["...)
		for j, v := range r.Packed() {
			if j > 0 {
				buf = append(buf, ", "...)
			}
			if v == 0 {
				v = 0 // drop the sign of -0
			}
			buf = strconv.AppendFloat(buf, v, 'f', ScriptDigits, 64)
		}
		buf = append(buf, ']')
		if i < len(records)-1 {
			buf = append(buf, ',')
		}
		buf = append(buf, '\n')
		bw.Write(buf)
	}
	bw.WriteString("        ];\n\n")

	bw.WriteString("        this.getRow = (index, row) => {\n")
	bw.WriteString("            const s = samples[index];\n")
	for i, name := range ColumnNames {
		fmt.Fprintf(bw, "            row.%s = s[%d];\n", name, columnSource[i])
	}
	bw.WriteString("        };\n")
	bw.WriteString(scriptFooter)

	return bw.Flush()
}

// WriteScriptFile writes the generator module to path. Failures wrap
// ErrIntermediateWriteFailed.
func WriteScriptFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntermediateWriteFailed, err)
	}
	if err := WriteScript(f, records); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrIntermediateWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIntermediateWriteFailed, err)
	}
	return nil
}
