package main

import "agritrack_backend/internal/app"

func main() {
	app.Run()
}
