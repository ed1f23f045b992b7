package pesticides

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/agridiary/pkg/db/models"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// minFields is the number of leading columns every accepted row must carry.
const minFields = 10

// ErrArchiveTooLarge is returned when the CSV entries of an archive expand
// beyond the extraction limit.
var ErrArchiveTooLarge = errors.New("archive expands beyond the extraction limit")

// ParseArchive reads every .csv entry of a ZIP archive and returns the rows of
// all of them in entry order. Other entries are ignored. maxBytes bounds the
// decompressed size of all CSV entries together; non-positive means no bound.
func ParseArchive(data []byte, maxBytes int64) ([]models.PesticideRegistration, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	budget := maxBytes
	var rows []models.PesticideRegistration
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name), ".csv") {
			continue
		}
		raw, err := readEntry(entry, budget, maxBytes > 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name, err)
		}
		if maxBytes > 0 {
			budget -= int64(len(raw))
		}
		parsed, err := ParseCSV(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name, err)
		}
		rows = append(rows, parsed...)
	}
	return rows, nil
}

// readEntry inflates entry, reading at most budget bytes when bounded. The
// declared size is not trusted.
func readEntry(entry *zip.File, budget int64, bounded bool) ([]byte, error) {
	if bounded && entry.UncompressedSize64 > uint64(budget) {
		return nil, ErrArchiveTooLarge
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if !bounded {
		return io.ReadAll(rc)
	}
	raw, err := io.ReadAll(io.LimitReader(rc, budget+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > budget {
		return nil, ErrArchiveTooLarge
	}
	return raw, nil
}

// ParseCSV decodes Shift_JIS text and maps each data line positionally. The
// first line is a header. Lines with fewer than ten comma separated fields
// are dropped. Quoted commas are not supported by the source format.
func ParseCSV(r io.Reader) ([]models.PesticideRegistration, error) {
	decoded, err := io.ReadAll(transform.NewReader(r, japanese.ShiftJIS.NewDecoder()))
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	lines := strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
	if len(lines) == 0 {
		return nil, nil
	}

	rows := make([]models.PesticideRegistration, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < minFields {
			continue
		}
		for i := range fields {
			fields[i] = cleanField(fields[i])
		}
		rows = append(rows, models.PesticideRegistration{
			RegistrationNumber:  fields[0],
			Usage:               fields[1],
			PesticideType:       fields[2],
			PesticideName:       fields[3],
			Abbreviation:        fields[4],
			CropName:            fields[5],
			ApplicationLocation: fields[6],
			TargetPestDisease:   fields[7],
			Purpose:             fields[8],
			DilutionAmount:      fields[9],
		})
	}
	return rows, nil
}

func cleanField(field string) string {
	field = strings.TrimSpace(field)
	if len(field) >= 2 && strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`) {
		return field[1 : len(field)-1]
	}
	return field
}
