package storage

import (
	"bufio"
	"os"
	"strings"

	"proxycheck/internal/shared/logger"
)

// Storage 接口定义了候选代理的读取与可用代理的持久化。
type Storage interface {
	LoadCandidates() ([]string, error)
	SaveWorking(proxies []string) error
}

// FileStorage 实现了 Storage 接口，输入和输出都是每行一个代理的纯文本文件。
type FileStorage struct {
	inputPath  string
	outputPath string
}

// NewFileStorage 创建一个新的 FileStorage 实例。
func NewFileStorage(inputPath, outputPath string) *FileStorage {
	return &FileStorage{
		inputPath:  inputPath,
		outputPath: outputPath,
	}
}

// OutputPath returns where SaveWorking writes.
func (fs *FileStorage) OutputPath() string {
	return fs.outputPath
}

// LoadCandidates 读取输入文件，去掉首尾空白并跳过空行。
// 文件不存在或不可读时返回错误。
func (fs *FileStorage) LoadCandidates() ([]string, error) {
	l := logger.WithComponent("ProxyPool/Storage")

	file, err := os.Open(fs.inputPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var candidates []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		candidates = append(candidates, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	l.Debug().Int("count", len(candidates)).Str("path", fs.inputPath).Msg("Loaded candidates from file.")
	return candidates, nil
}

// SaveWorking 将可用代理以换行分隔一次性写入输出文件。
func (fs *FileStorage) SaveWorking(proxies []string) error {
	l := logger.WithComponent("ProxyPool/Storage")

	if err := os.WriteFile(fs.outputPath, []byte(strings.Join(proxies, "\n")), 0644); err != nil {
		return err
	}

	l.Info().Int("count", len(proxies)).Str("path", fs.outputPath).Msg("Successfully saved working proxies to file.")
	return nil
}
