// Package main 启动应用程序
package main

import "github.com/huloud/huloud/pkg/cmd"

//	@title			Huloud API
//	@version		1.0
//	@description	Huloud 是一个个人云存储服务，提供分层文件管理、上传下载、收藏、分享与配额统计等功能。

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
