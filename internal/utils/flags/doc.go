// Package flags holds reusable pflag helpers shared by the command builders.
package flags
