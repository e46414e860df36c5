package history

import (
	"database/sql"
	"errors"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		mode        string
		status      string
		inputFile   sql.NullString
		sourceLang  sql.NullString
		ttsEngine   sql.NullString
		outputFile  sql.NullString
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&mode,
		&status,
		&inputFile,
		&run.OutputDir,
		&sourceLang,
		&run.TargetLanguage,
		&ttsEngine,
		&run.Utterances,
		&run.Modified,
		&outputFile,
		&errorMsg,
		&run.ExitCode,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Run{}, err
	}
	run.Mode = Mode(mode)
	run.Status = Status(status)
	run.InputFile = inputFile.String
	run.SourceLanguage = sourceLang.String
	run.TTSEngine = ttsEngine.String
	run.OutputFile = outputFile.String
	run.ErrorMessage = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
