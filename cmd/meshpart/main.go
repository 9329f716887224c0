// Command meshpart reads a triangle mesh, partitions it into
// near-planar clusters, optionally post-processes and simplifies the
// result, and writes the clustered mesh back out.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"

	"github.com/shonigmann/plane-opt-rgbd/clusterfile"
	"github.com/shonigmann/plane-opt-rgbd/color"
	"github.com/shonigmann/plane-opt-rgbd/partition"
	"github.com/shonigmann/plane-opt-rgbd/plyio"
)

func main() {
	var outPLYPath, outClusterPath, inClusterPath string
	var minClusterArea float64
	var topKBase string
	var noPostProcess, noSimplify bool
	flag.StringVar(&outPLYPath, "out-ply", "", "output PLY path (default: derived from input)")
	flag.StringVar(&outClusterPath, "out-cluster", "", "output cluster file path (default: derived from input)")
	flag.StringVar(&inClusterPath, "cluster-file", "", "restore a prior cluster assignment instead of partitioning")
	flag.Float64Var(&minClusterArea, "min-cluster-area", 0, "small-cluster removal / top-K export threshold")
	flag.StringVar(&topKBase, "top-k-base", "", "if set, write one PLY per qualifying cluster using this basename")
	flag.BoolVar(&noPostProcess, "no-post-process", false, "skip post-processing")
	flag.BoolVar(&noSimplify, "no-simplify", false, "skip mesh simplification")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshpart [flags] <input.ply> <target_cluster_num>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inPLYPath := args[0]

	log.Println("Reading PLY file:", inPLYPath)
	f, err := os.Open(inPLYPath)
	essentials.Must(err)
	raw, err := plyio.Read(f)
	f.Close()
	essentials.Must(err)
	log.Printf("#Vertices: %d, #Faces: %d", len(raw.Vertices), len(raw.Triangles))

	mesh, diag, err := partition.NewMesh(raw.Vertices, raw.Triangles)
	essentials.Must(err)
	if diag.DegenerateFaces > 0 {
		log.Printf("skipped %d degenerate faces", diag.DegenerateFaces)
	}

	cfg := partition.DefaultConfig()
	cfg.MinClusterArea = minClusterArea
	cfg.RunPostProcessing = !noPostProcess
	cfg.RunMeshSimplification = !noSimplify

	p := partition.New(mesh, cfg)

	var targetClusterNum int
	if inClusterPath != "" {
		log.Println("Reading cluster file:", inClusterPath)
		cf, err := os.Open(inClusterPath)
		essentials.Must(err)
		clusterCount, assignment, err := clusterfile.Read(cf)
		cf.Close()
		essentials.Must(err)
		essentials.Must(p.LoadClusterAssignment(clusterCount, assignment))
		targetClusterNum = p.CurrentClusterNum()
		log.Println("Run post processing ...")
		if cfg.RunPostProcessing {
			p.RunPostProcessing()
		}
		essentials.Must(p.DoubleCheck())
	} else {
		targetClusterNum, err = strconv.Atoi(args[1])
		essentials.Must(err)
		p.Config.TargetClusterNum = targetClusterNum
		log.Println("Run mesh partition ...")
		essentials.Must(p.RunPipeline())
	}
	log.Println("Final cluster number:", p.CurrentClusterNum())

	base := strings.TrimSuffix(inPLYPath, ".ply")
	if outPLYPath == "" {
		outPLYPath = fmt.Sprintf("%s-cluster%d.ply", base, targetClusterNum)
	}
	if outClusterPath == "" {
		outClusterPath = fmt.Sprintf("%s-cluster%d.txt", base, targetClusterNum)
	}

	log.Println("Write PLY file:", outPLYPath)
	essentials.Must(writeClusteredPLY(p, outPLYPath))

	log.Println("Write cluster file:", outClusterPath)
	essentials.Must(writeClusterFile(p, outClusterPath))

	if topKBase != "" {
		log.Println("Write top cluster PLYs with base:", topKBase)
		essentials.Must(writeTopPLYs(p, topKBase, minClusterArea, model3d.Y(1)))
	}
	log.Println("ALL DONE.")
}

func writeClusteredPLY(p *partition.Partition, path string) error {
	out := &plyio.Mesh{
		Vertices:  make([]model3d.Coord3D, len(p.Mesh.Vertices)),
		Triangles: make([][3]int, 0, len(p.Mesh.Faces)),
		Colors:    make([][3]uint8, 0, len(p.Mesh.Faces)),
	}
	for i, v := range p.Mesh.Vertices {
		out.Vertices[i] = v.Pos
	}
	for i := range p.Mesh.Faces {
		f := &p.Mesh.Faces[i]
		if !f.Valid {
			continue
		}
		out.Triangles = append(out.Triangles, f.Indices)
		orig := f.ClusterID
		if c := p.Clusters[f.ClusterID]; c != nil {
			orig = c.OriginalID
		}
		out.Colors = append(out.Colors, color.FromClusterID(orig))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return plyio.Write(f, out)
}

func writeClusterFile(p *partition.Partition, path string) error {
	assignment := make([]int, len(p.Mesh.Faces))
	for i := range p.Mesh.Faces {
		assignment[i] = p.Mesh.Faces[i].ClusterID
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return clusterfile.Write(f, len(p.Clusters), assignment)
}

// writeTopPLYs emits one PLY per cluster with area >= minArea, oriented
// so the cluster's plane normal has a non-negative dot product with
// gravity, useful for floor/wall/ceiling disambiguation downstream.
func writeTopPLYs(p *partition.Partition, base string, minArea float64, gravity model3d.Coord3D) error {
	for _, c := range p.NonEmptyClusters() {
		if c.Area < minArea {
			continue
		}
		// The area-weighted sum of the member faces' normals follows their
		// winding, so reversing the winding reverses it.
		var normal model3d.Coord3D
		for fid := range c.Faces {
			f := &p.Mesh.Faces[fid]
			normal = normal.Add(f.Normal.Scale(f.Area))
		}
		flip := normal.Dot(gravity) < 0

		out := &plyio.Mesh{}
		remap := map[int]int{}
		for _, fid := range sortedFaceIDs(c.Faces) {
			f := &p.Mesh.Faces[fid]
			tri := f.Indices
			if flip {
				tri = [3]int{tri[0], tri[2], tri[1]}
			}
			var newTri [3]int
			for k, vi := range tri {
				nv, ok := remap[vi]
				if !ok {
					nv = len(out.Vertices)
					remap[vi] = nv
					out.Vertices = append(out.Vertices, p.Mesh.Vertices[vi].Pos)
				}
				newTri[k] = nv
			}
			out.Triangles = append(out.Triangles, newTri)
		}

		path := fmt.Sprintf("%s-%d.ply", base, c.OriginalID)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = plyio.Write(f, out)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// sortedFaceIDs returns a cluster's face ids in ascending order, so that
// per-PLY vertex numbering is deterministic across runs regardless of
// the backing map's iteration order.
func sortedFaceIDs(faces map[int]struct{}) []int {
	out := make([]int, 0, len(faces))
	for fid := range faces {
		out = append(out, fid)
	}
	sort.Ints(out)
	return out
}
