// Command cluster_info prints summary statistics for a PLY mesh and,
// optionally, a cluster assignment file, without transforming either.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/essentials"

	"github.com/shonigmann/plane-opt-rgbd/clusterfile"
	"github.com/shonigmann/plane-opt-rgbd/partition"
	"github.com/shonigmann/plane-opt-rgbd/plyio"
)

func main() {
	var clusterPath string
	flag.StringVar(&clusterPath, "cluster-file", "", "cluster assignment file to report on")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cluster_info [flags] <input.ply>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Println("Loading mesh...")
	f, err := os.Open(args[0])
	essentials.Must(err)
	raw, err := plyio.Read(f)
	f.Close()
	essentials.Must(err)

	mesh, diag, err := partition.NewMesh(raw.Vertices, raw.Triangles)
	essentials.Must(err)

	fmt.Println("Vertices:", len(mesh.Vertices))
	fmt.Println("Faces:", mesh.NumFaces())
	fmt.Println("Degenerate faces skipped:", diag.DegenerateFaces)

	if clusterPath == "" {
		return
	}
	cf, err := os.Open(clusterPath)
	essentials.Must(err)
	clusterCount, assignment, err := clusterfile.Read(cf)
	cf.Close()
	essentials.Must(err)

	p := partition.New(mesh, partition.DefaultConfig())
	essentials.Must(p.LoadClusterAssignment(clusterCount, assignment))

	fmt.Println("Cluster count (declared):", clusterCount)
	fmt.Println("Cluster count (non-empty):", p.CurrentClusterNum())
	fmt.Println("Total energy:", p.TotalEnergy())

	top := p.NonEmptyClusters()
	partition.SortClustersByArea(top)
	for i, c := range top {
		if i >= 5 {
			break
		}
		fmt.Printf("  cluster %d: area=%.4f faces=%d energy=%.6f\n", c.OriginalID, c.Area, len(c.Faces), c.Energy)
	}
}
