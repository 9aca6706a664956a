package recovery

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oukeidos/pgnct/internal/files"
	"github.com/oukeidos/pgnct/internal/language"
)

// SessionLog stores the state of a translation run for later repair.
// Paths are relative to the directory holding the log.
type SessionLog struct {
	LogVersion       int    `json:"log_version"`
	InputPath        string `json:"input_path"`
	OutputPath       string `json:"output_path"`
	InputHash        string `json:"input_hash"`
	CommentsChecksum string `json:"comments_checksum"`
	Provider         string `json:"provider"`
	APIURL           string `json:"api_url,omitempty"`
	Model            string `json:"model,omitempty"`
	SourceLang       string `json:"source_lang"`
	TargetLang       string `json:"target_lang"`
	Concurrency      int    `json:"concurrency"`
	MaxAttempts      int    `json:"max_attempts"`
	FailedComments   []int  `json:"failed_comments"`
	TotalComments    int    `json:"total_comments"`
	Status           string `json:"status"` // "Partial Success" or "Failure"
	StatusReason     string `json:"status_reason,omitempty"`
}

const CurrentLogVersion = 1

const (
	StatusSuccess        = "Success"
	StatusPartialSuccess = "Partial Success"
	StatusFailure        = "Failure"

	ReasonCanceled = "canceled"
)

// Validate checks if the session log is consistent and safe to resume.
func (log *SessionLog) Validate() error {
	if log.LogVersion == 0 {
		log.LogVersion = CurrentLogVersion
	}
	if log.LogVersion != CurrentLogVersion {
		return fmt.Errorf("unsupported log_version: %d", log.LogVersion)
	}
	if log.InputPath == "" {
		return fmt.Errorf("input_path is empty")
	}
	if filepath.IsAbs(log.InputPath) {
		return fmt.Errorf("input_path must be relative, not absolute: %s", log.InputPath)
	}
	if log.OutputPath == "" {
		return fmt.Errorf("output_path is empty")
	}
	if filepath.IsAbs(log.OutputPath) {
		return fmt.Errorf("output_path must be relative, not absolute: %s", log.OutputPath)
	}
	if strings.HasPrefix(filepath.Clean(log.OutputPath), "..") {
		return fmt.Errorf("output_path cannot traverse parent directories: %s", log.OutputPath)
	}
	if !strings.HasPrefix(log.InputHash, "sha256:") {
		return fmt.Errorf("invalid input_hash: %q", log.InputHash)
	}
	if !strings.HasPrefix(log.CommentsChecksum, "sha256:") {
		return fmt.Errorf("invalid comments_checksum: %q", log.CommentsChecksum)
	}
	if log.Provider == "" {
		return fmt.Errorf("provider is empty")
	}
	if log.Concurrency <= 0 {
		return fmt.Errorf("invalid concurrency: %d", log.Concurrency)
	}
	if log.MaxAttempts <= 0 {
		return fmt.Errorf("invalid max_attempts: %d", log.MaxAttempts)
	}
	if log.TotalComments <= 0 {
		return fmt.Errorf("invalid total_comments: %d", log.TotalComments)
	}
	if len(log.FailedComments) == 0 {
		return fmt.Errorf("failed_comments list is empty")
	}
	for _, idx := range log.FailedComments {
		if idx < 0 || idx >= log.TotalComments {
			return fmt.Errorf("failed comment index out of range: %d", idx)
		}
	}
	if _, err := language.Normalize(log.SourceLang, true); err != nil {
		return fmt.Errorf("source_lang: %w", err)
	}
	if _, err := language.Normalize(log.TargetLang, false); err != nil {
		return fmt.Errorf("target_lang: %w", err)
	}
	if log.Status == "" {
		return fmt.Errorf("session status is empty")
	}
	if log.StatusReason != "" && log.StatusReason != ReasonCanceled {
		return fmt.Errorf("invalid status_reason: %s", log.StatusReason)
	}
	return nil
}

func marshal(log *SessionLog) ([]byte, error) {
	if log.LogVersion == 0 {
		log.LogVersion = CurrentLogVersion
	}
	return json.MarshalIndent(log, "", "  ")
}

// SaveSessionLog writes a new session log without replacing an existing
// file. It returns the path actually written.
func SaveSessionLog(path string, log *SessionLog) (string, error) {
	data, err := marshal(log)
	if err != nil {
		return "", err
	}
	return files.AtomicWriteExclusive(path, data, 0600)
}

// UpdateSessionLog replaces the session log at path.
func UpdateSessionLog(path string, log *SessionLog) error {
	data, err := marshal(log)
	if err != nil {
		return err
	}
	return files.AtomicWrite(path, data, 0600)
}

// GenerateRecoveryPath returns an unused log path next to outputPath:
// name_recovery.json, then name_recovery_1.json .. _9.json, then a UUID suffix.
func GenerateRecoveryPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	stem := filepath.Join(dir, base+"_recovery")

	primary := stem + ".json"
	if _, err := os.Stat(primary); os.IsNotExist(err) {
		return primary
	}
	candidate, err := files.FreePath(stem, ".json")
	if err != nil {
		return fmt.Sprintf("%s_%d.json", stem, os.Getpid())
	}
	return candidate
}

// LoadSessionLog loads the session state from a JSON file.
func LoadSessionLog(path string) (*SessionLog, error) {
	log, _, err := LoadSessionLogWithHash(path)
	return log, err
}

// LoadSessionLogWithHash loads the session log and returns a content hash,
// so callers can detect concurrent edits before deleting it.
func LoadSessionLogWithHash(path string) (*SessionLog, [32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, [32]byte{}, err
	}
	var log SessionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, [32]byte{}, fmt.Errorf("failed to parse session log: %w", err)
	}
	if log.LogVersion == 0 {
		log.LogVersion = CurrentLogVersion
	}
	return &log, sha256.Sum256(data), nil
}

// HashFile returns a SHA-256 hash of the given file contents.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// HashFileHex returns a sha256-prefixed hex string of the file contents.
func HashFileHex(path string) (string, error) {
	sum, err := HashFile(path)
	if err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// CalculateStatus derives the run status from the number of failed comments
// and the number of comments that needed translation.
func CalculateStatus(failedCount, translatableCount int) string {
	if failedCount == 0 {
		return StatusSuccess
	}
	if failedCount < translatableCount {
		return StatusPartialSuccess
	}
	return StatusFailure
}

// ResolveOutputPath resolves the relative output_path based on the log file location.
func ResolveOutputPath(logPath, outputPath string) string {
	return resolve(logPath, outputPath)
}

// ResolveInputPath resolves the relative input_path based on the log file location.
func ResolveInputPath(logPath, inputPath string) string {
	return resolve(logPath, inputPath)
}

func resolve(logPath, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(logPath), target)
}

// ToRelativeOutputPath converts an output path to one relative to the log.
// The output must live in or below the log directory.
func ToRelativeOutputPath(logPath, outputPath string) (string, error) {
	rel, err := toRelativePath(logPath, outputPath)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("output path is not within log directory")
	}
	return rel, nil
}

// ToRelativeInputPath converts an input path to one relative to the log.
func ToRelativeInputPath(logPath, inputPath string) (string, error) {
	return toRelativePath(logPath, inputPath)
}

func toRelativePath(logPath, targetPath string) (string, error) {
	absLogDir, err := filepath.Abs(filepath.Dir(logPath))
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absLogDir, absTarget)
}
