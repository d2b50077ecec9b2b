package urlhandler

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrFileNotFound = errors.New("targets file not found")
	ErrFileEmpty    = errors.New("targets file contains no valid URLs")
)

// ReadURLsFromFile reads one target URL per line, skipping blank lines and
// '#' comments, and returns the normalized URLs. Lines that fail
// normalization are logged and skipped; a file left with zero valid URLs is
// an error.
func ReadURLsFromFile(filePath string, logger zerolog.Logger) ([]string, error) {
	fileLogger := logger.With().Str("file_path", filePath).Logger()

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return nil, fmt.Errorf("could not open targets file %s: %w", filePath, err)
	}
	defer file.Close()

	var urls []string
	skipped := 0
	lineNumber := 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		normalized, normErr := NormalizeURL(line)
		if normErr != nil {
			fileLogger.Warn().Err(normErr).Int("line", lineNumber).Str("url", line).Msg("Skipping unparsable target URL")
			skipped++
			continue
		}
		urls = append(urls, normalized)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("error reading targets file %s: %w", filePath, scanErr)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileEmpty, filePath)
	}

	fileLogger.Info().
		Int("url_count", len(urls)).
		Int("skipped", skipped).
		Msg("Targets file loaded")
	return urls, nil
}
