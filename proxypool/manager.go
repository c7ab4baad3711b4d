package manager

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"proxycheck/internal/shared/logger"
	"proxycheck/internal/shared/types"
	"proxycheck/proxypool/model"
	"proxycheck/proxypool/parser"
	"proxycheck/proxypool/storage"
	"proxycheck/proxypool/validator"
)

// Manager 驱动一个完整的检测批次：读取 -> 解析 -> 验证 -> 存储 -> 汇总。
type Manager struct {
	cfg       *types.Config
	storage   storage.Storage
	validator *validator.Validator
	out       io.Writer
}

// NewManager 创建批次管理器。进度行和汇总写入 out。
func NewManager(cfg *types.Config, storage storage.Storage, validator *validator.Validator, out io.Writer) *Manager {
	return &Manager{
		cfg:       cfg,
		storage:   storage,
		validator: validator,
		out:       out,
	}
}

// Run 执行一个批次。只有读取候选列表失败才会返回错误；
// 单个候选的解析或检测失败只计入汇总。
func (m *Manager) Run(ctx context.Context) (model.Summary, error) {
	l := logger.WithComponent("ProxyPool/Manager").With().Str("run_id", uuid.NewString()).Logger()

	var summary model.Summary
	raws, err := m.storage.LoadCandidates()
	if err != nil {
		return summary, fmt.Errorf("failed to load candidates: %w", err)
	}
	summary.Total = len(raws)

	if len(raws) == 0 {
		fmt.Fprintln(m.out, "No proxies found in the file.")
		return summary, nil
	}

	candidates := make([]model.Candidate, 0, len(raws))
	for _, raw := range raws {
		ep, err := parser.Parse(raw)
		if err != nil {
			summary.ParseSkipped++
			l.Warn().Err(err).Str("proxy", raw).Msg("Invalid proxy format, skipping.")
			fmt.Fprintf(m.out, "[skip] %s - INVALID: %v\n", raw, err)
			continue
		}
		candidates = append(candidates, model.Candidate{Raw: raw, Endpoint: ep})
	}

	fmt.Fprintf(m.out, "Testing %d proxies against %s...\n\n", len(candidates), m.cfg.CheckerConf.TestURL)

	working := make([]string, 0, len(candidates))
	for res := range m.validator.Validate(ctx, candidates) {
		summary.Tested++
		status := "FAILED"
		if res.Success {
			summary.Working++
			working = append(working, res.Candidate.Raw)
			status = "WORKING"
		} else {
			summary.Failed++
		}
		fmt.Fprintf(m.out, "[%d/%d] %s - %s: %s\n", summary.Tested, len(candidates), res.Candidate.Raw, status, res.Message)
		l.Debug().Str("proxy", res.Candidate.Raw).Bool("success", res.Success).Dur("latency", res.Latency).Msg("Proxy checked.")
	}

	if err := m.storage.SaveWorking(working); err != nil {
		l.Error().Err(err).Msg("Failed to save working proxies.")
		return summary, fmt.Errorf("failed to save working proxies: %w", err)
	}

	m.printSummary(summary)
	l.Info().
		Int("total", summary.Total).
		Int("parse_skipped", summary.ParseSkipped).
		Int("working", summary.Working).
		Int("failed", summary.Failed).
		Msg("Batch finished.")
	return summary, nil
}

func (m *Manager) printSummary(s model.Summary) {
	fmt.Fprintf(m.out, "\nResults:\n")
	fmt.Fprintf(m.out, "Total proxies: %d\n", s.Total)
	fmt.Fprintf(m.out, "Invalid (skipped): %d\n", s.ParseSkipped)
	fmt.Fprintf(m.out, "Working proxies: %d\n", s.Working)
	fmt.Fprintf(m.out, "Failed proxies: %d\n", s.Failed)
	fmt.Fprintf(m.out, "Working proxies saved to: %s\n", m.cfg.CheckerConf.Output)
}
