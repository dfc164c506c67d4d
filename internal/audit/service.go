package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"go.uber.org/zap"
)

type Service struct {
	logger       *logging.Logger
	fileWriter   *os.File
	writeMutex   sync.Mutex
	enabled      bool
	logDir       string
	logBaseName  string
	logExtension string
	seqNum       int
	maxSizeBytes int64
}

type AuditEvent struct {
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	EventCategory string         `json:"event_category"`
	Severity      string         `json:"severity"`
	Success       bool           `json:"success"`
	ClientIP      string         `json:"client_ip,omitempty"`
	OperationID   string         `json:"operation_id,omitempty"`
	State         string         `json:"state,omitempty"`
	Source        string         `json:"source,omitempty"`
	Dest          string         `json:"dest,omitempty"`
	Command       []string       `json:"command,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	DurationMs    int64          `json:"duration_ms,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// NewService opens <dir>/<base>-current<ext>. Once that file reaches
// maxSizeBytes it is renamed to <base>-<n><ext> and a fresh one is opened.
func NewService(enabled bool, logFilePath string, maxSizeBytes int64, logger *logging.Logger) (*Service, error) {
	if !enabled {
		return &Service{
			enabled: false,
		}, nil
	}

	if logFilePath == "" {
		logFilePath = "/var/log/berth-archiver/audit.jsonl"
	}

	logDir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	baseName := filepath.Base(logFilePath)
	ext := filepath.Ext(baseName)
	if ext == "" {
		ext = ".jsonl"
	}
	trimmedBase := strings.TrimSuffix(baseName, ext)
	if trimmedBase == "" {
		trimmedBase = "audit"
	}

	service := &Service{
		logger:       logger.With(zap.String("service", "audit")),
		enabled:      true,
		logDir:       logDir,
		logBaseName:  trimmedBase,
		logExtension: ext,
		maxSizeBytes: maxSizeBytes,
	}

	seq, err := service.highestSequenceNumber()
	if err != nil {
		service.logger.Warn("failed to scan existing audit log sequence numbers", zap.Error(err))
	}
	service.seqNum = seq

	if err := service.openCurrentFile(); err != nil {
		return nil, err
	}

	service.logger.Info("audit log service initialized",
		zap.String("log_dir", logDir),
		zap.String("base_name", trimmedBase),
		zap.Int64("max_size_bytes", maxSizeBytes),
		zap.Int("seq_num", seq),
	)

	return service, nil
}

func (s *Service) CurrentFilePath() string {
	return filepath.Join(s.logDir, fmt.Sprintf("%s-current%s", s.logBaseName, s.logExtension))
}

func (s *Service) rotatedFilePath(seqNum int) string {
	return filepath.Join(s.logDir, fmt.Sprintf("%s-%d%s", s.logBaseName, seqNum, s.logExtension))
}

func (s *Service) highestSequenceNumber() (int, error) {
	pattern := regexp.MustCompile(fmt.Sprintf(`^%s-(\d+)%s$`,
		regexp.QuoteMeta(s.logBaseName), regexp.QuoteMeta(s.logExtension)))

	entries, err := os.ReadDir(s.logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	maxSeq := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := pattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}
		if seq, err := strconv.Atoi(matches[1]); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

func (s *Service) openCurrentFile() error {
	path := s.CurrentFilePath()
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file %s: %w", path, err)
	}
	s.fileWriter = file
	return nil
}

func (s *Service) rotateLocked() error {
	if err := s.fileWriter.Close(); err != nil {
		s.logger.Warn("failed to close audit log file during rotation", zap.Error(err))
	}
	s.fileWriter = nil

	s.seqNum++
	rotatedPath := s.rotatedFilePath(s.seqNum)
	if err := os.Rename(s.CurrentFilePath(), rotatedPath); err != nil {
		s.seqNum--
		if openErr := s.openCurrentFile(); openErr != nil {
			s.logger.Error("failed to reopen audit log file", zap.Error(openErr))
		}
		return fmt.Errorf("failed to rotate audit log file: %w", err)
	}

	s.logger.Info("rotated audit log file",
		zap.String("rotated_to", rotatedPath),
		zap.Int("seq_num", s.seqNum),
	)
	return s.openCurrentFile()
}

func (s *Service) checkSizeRotationLocked() {
	if s.maxSizeBytes <= 0 || s.fileWriter == nil {
		return
	}

	info, err := s.fileWriter.Stat()
	if err != nil {
		s.logger.Warn("failed to stat audit log file for size check", zap.Error(err))
		return
	}

	if info.Size() >= s.maxSizeBytes {
		if err := s.rotateLocked(); err != nil {
			s.logger.Error("failed to rotate audit log file by size", zap.Error(err))
		}
	}
}

func (s *Service) Log(event AuditEvent) {
	if s == nil || !s.enabled {
		return
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	if s.fileWriter == nil {
		if err := s.openCurrentFile(); err != nil {
			s.logger.Error("failed to open audit log file", zap.Error(err))
			return
		}
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.EventCategory = GetEventCategory(event.EventType)
	event.Severity = GetEventSeverity(event.EventType)

	jsonData, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal audit event", zap.Error(err))
		return
	}

	if _, err := s.fileWriter.Write(append(jsonData, '\n')); err != nil {
		s.logger.Error("failed to write audit event", zap.Error(err))
		return
	}

	s.checkSizeRotationLocked()
}

func (s *Service) LogArchiveEvent(eventType, clientIP, operationID, state, source, dest string, command []string, success bool, failureReason string, durationMs int64, metadata map[string]any) {
	s.Log(AuditEvent{
		EventType:     eventType,
		ClientIP:      clientIP,
		OperationID:   operationID,
		State:         state,
		Source:        source,
		Dest:          dest,
		Command:       command,
		Success:       success,
		FailureReason: failureReason,
		DurationMs:    durationMs,
		Metadata:      metadata,
	})
}

func (s *Service) LogOperationEvent(eventType, clientIP, operationID string) {
	s.Log(AuditEvent{
		EventType:   eventType,
		ClientIP:    clientIP,
		OperationID: operationID,
		Success:     true,
	})
}

func (s *Service) LogAuthEvent(eventType, clientIP string, success bool, failureReason string) {
	s.Log(AuditEvent{
		EventType:     eventType,
		ClientIP:      clientIP,
		Success:       success,
		FailureReason: failureReason,
	})
}

func (s *Service) Close() error {
	if s == nil || !s.enabled {
		return nil
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	if s.fileWriter != nil {
		err := s.fileWriter.Close()
		s.fileWriter = nil
		return err
	}
	return nil
}

func (s *Service) IsEnabled() bool {
	return s != nil && s.enabled
}
