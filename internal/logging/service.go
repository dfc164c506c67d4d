package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Service appends one JSON line per HTTP request to the request log.
type Service struct {
	logger       *Logger
	fileWriter   *os.File
	writeMutex   sync.Mutex
	enabled      bool
	logFilePath  string
	maxSizeBytes int64
}

func NewService(enabled bool, logFilePath string, maxSizeBytes int64, logger *Logger) (*Service, error) {
	if !enabled {
		return &Service{
			enabled: false,
		}, nil
	}

	if logFilePath == "" {
		logFilePath = "/var/log/berth-archiver/requests.jsonl"
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Service{
		logger:       logger,
		fileWriter:   file,
		enabled:      true,
		logFilePath:  logFilePath,
		maxSizeBytes: maxSizeBytes,
	}, nil
}

func (s *Service) LogRequest(entry *RequestLogEntry) {
	if !s.enabled {
		return
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	jsonData, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("failed to marshal request log entry", zap.Error(err))
		return
	}

	if _, err := s.fileWriter.Write(append(jsonData, '\n')); err != nil {
		s.logger.Error("failed to write request log entry", zap.Error(err))
		return
	}

	if err := s.rotateIfNeededLocked(); err != nil {
		s.logger.Warn("failed to rotate request log", zap.Error(err))
	}
}

func (s *Service) rotateIfNeededLocked() error {
	if s.maxSizeBytes <= 0 {
		return nil
	}

	info, err := s.fileWriter.Stat()
	if err != nil {
		return err
	}
	if info.Size() < s.maxSizeBytes {
		return nil
	}

	if err := s.fileWriter.Close(); err != nil {
		return err
	}

	rotatedPath := fmt.Sprintf("%s.%s", s.logFilePath, time.Now().Format("20060102-150405.000"))
	renameErr := os.Rename(s.logFilePath, rotatedPath)

	newFile, err := os.OpenFile(s.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	s.fileWriter = newFile
	if renameErr != nil {
		return renameErr
	}
	s.logger.Info("rotated request log", zap.String("rotated_to", rotatedPath))
	return nil
}

func (s *Service) Close() error {
	if !s.enabled {
		return nil
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	if s.fileWriter != nil {
		return s.fileWriter.Close()
	}
	return nil
}
