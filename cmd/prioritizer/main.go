// Command prioritizer 为城市排序气候行动：命令行单次排序、比较器一致性检查、HTTP 服务。
package main

import (
	"fmt"
	"os"
)

// version 构建时通过 ldflags 注入
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
