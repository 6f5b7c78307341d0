// Package cli implements the stubd command line.
//
//	stubd serve     start the stub server (foreground)
//	stubd validate  load fixtures and routes without serving
//	stubd routes    print the route table
//	stubd version   show version information
//
// Every command reads the same configuration: the file named by --config,
// or the stock route set over example1.json and example2.json in the working
// directory when no file is given.
package cli
