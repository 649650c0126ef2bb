// YuePai 排班引擎命令行工具
// 从 JSON 快照生成月度排班，或审计已有排班方案
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/yuepai/yuepai/pkg/logger"
	"github.com/yuepai/yuepai/pkg/model"
	"github.com/yuepai/yuepai/pkg/scheduler"
	"github.com/yuepai/yuepai/pkg/scheduler/optimizer"
	"github.com/yuepai/yuepai/pkg/validator"
)

var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "yuepai",
		Short:   "月度排班引擎命令行工具",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logger.Init(logger.Config{Level: level, Format: "console"})
		},
	}
	root.PersistentFlags().String("log-level", "warn", "日志级别 (debug/info/warn/error)")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newAuditCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		inputPath      string
		outputPath     string
		seed           int64
		skipOptimizers bool
		iterations     int
		generations    int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "从输入快照生成月度排班",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(inputPath)
			if err != nil {
				return err
			}

			opts := scheduler.DefaultOptions()
			opts.Seed = seed
			opts.SkipOptimizers = skipOptimizers
			if iterations > 0 {
				opts.LocalSearch = &optimizer.LocalSearchConfig{MaxIterations: iterations}
			}
			if generations > 0 {
				genetic := optimizer.DefaultGeneticConfig()
				genetic.Generations = generations
				opts.Genetic = genetic
			}

			result, err := scheduler.NewGenerator(opts).Generate(input)
			if err != nil {
				return fmt.Errorf("排班生成失败: %w", err)
			}

			fmt.Fprintf(os.Stderr, "生成 %d 个班次，填充率 %.1f%%，适应度 %.2f，耗时 %s (seed=%d)\n",
				len(result.Shifts), result.Statistics.FillRate*100,
				result.Fitness, result.Duration, result.Seed)

			return writeJSON(outputPath, result)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "排班输入快照 JSON 文件（- 表示标准输入）")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "-", "结果输出文件（- 表示标准输出）")
	cmd.Flags().Int64Var(&seed, "seed", 0, "随机种子（0 表示取当前时间）")
	cmd.Flags().BoolVar(&skipOptimizers, "skip-optimizers", false, "跳过局部搜索与遗传优化")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "局部搜索迭代预算（0 取默认值）")
	cmd.Flags().IntVar(&generations, "generations", 0, "遗传算法代数（0 取默认值）")
	cmd.MarkFlagRequired("input")

	return cmd
}

func newAuditCmd() *cobra.Command {
	var (
		inputPath  string
		rosterPath string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "审计一份排班方案的硬约束",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(inputPath)
			if err != nil {
				return err
			}

			var shifts []*model.GeneratedShift
			if err := readJSON(rosterPath, &shifts); err != nil {
				return err
			}

			violations := validator.NewAuditor(input.Settings.MaxConsecutiveDays).Audit(input, shifts)
			if len(violations) == 0 {
				fmt.Println("排班方案通过全部硬约束检查")
				return nil
			}

			for _, v := range violations {
				fmt.Printf("[%s] %s\n", v.Type, v.Message)
			}
			return fmt.Errorf("发现 %d 项硬约束违规", len(violations))
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "排班输入快照 JSON 文件")
	cmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "待审计的班次列表 JSON 文件")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("roster")

	return cmd
}

func readInput(path string) (*model.SchedulerInput, error) {
	var input model.SchedulerInput
	if err := readJSON(path, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

func readJSON(path string, v interface{}) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" || path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
