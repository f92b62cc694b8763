// Leima - AWS Tag Compliance Exporter
// Scan. Aggregate. Expose.
package main

func main() {
	Execute()
}
