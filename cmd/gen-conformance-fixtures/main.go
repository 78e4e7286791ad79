package main

func main() {
	runGeneratorCLI()
}
