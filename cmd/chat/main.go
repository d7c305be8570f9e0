package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"k8s.io/klog/v2"

	"github.com/reqchat/backend/internal/pkg/llm"
	"github.com/reqchat/backend/internal/pkg/mrd"
	"github.com/reqchat/backend/internal/pkg/relayclient"
	"github.com/reqchat/backend/internal/pkg/sse"
)

func main() {
	klog.InitFlags(nil)
	server := flag.String("server", "http://localhost:8080", "relay server base URL")
	profile := flag.String("profile", "", "chat profile, empty for the server default")
	flag.Parse()
	defer klog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := relayclient.New(*server, nil)
	var history []llm.ChatTurn
	var current *mrd.MRD

	fmt.Println("输入需求描述开始对话，空行跳过，Ctrl+D 退出")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		turn := mrd.NewTurn(current)
		printed := 0
		err := client.Send(ctx, *profile, message, history, func(delta string) {
			if turn.Append(delta) {
				printMRD(turn.MRD())
			}
			visible := turn.Visible()
			if len(visible) > printed {
				fmt.Print(visible[printed:])
				printed = len(visible)
			}
		})
		fmt.Println()

		if err != nil {
			if errors.Is(err, sse.ErrIncomplete) {
				fmt.Fprintln(os.Stderr, "回复中断，请重试")
			} else {
				fmt.Fprintf(os.Stderr, "请求失败: %v\n", err)
			}
			if ctx.Err() != nil {
				return
			}
			continue
		}
		turn.Finish()
		current = turn.MRD()

		history = append(history,
			llm.ChatTurn{Role: llm.RoleUser, Content: message},
			llm.ChatTurn{Role: llm.RoleAssistant, Content: turn.Display()},
		)
	}
}

func printMRD(m *mrd.MRD) {
	if m == nil {
		return
	}
	fmt.Println()
	fmt.Println("----- MRD -----")
	if name := m.Title(); name != "" {
		fmt.Printf("项目名称: %s\n", name)
	}
	if bg := m.Summary(); bg != "" {
		fmt.Printf("项目背景: %s\n", bg)
	}
	printList("目标用户", m.TargetUsers)
	if len(m.CoreFeatures) > 0 {
		fmt.Println("核心功能:")
		for _, f := range m.CoreFeatures {
			fmt.Printf("  - [%s] %s: %s\n", f.Priority, f.Name, f.Description)
		}
	}
	printList("用户故事", m.UserStories)
	printList("非功能需求", m.NonFunctionalRequirements)
	printList("成功指标", m.SuccessMetrics)
	fmt.Println("---------------")
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
