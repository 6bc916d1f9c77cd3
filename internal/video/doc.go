// Package video writes evidence files through OpenCV's VideoWriter and owns
// the NF<invoice>.avi filename convention. The session controller drives sink
// lifecycle; the daemon loop feeds frames.
package video
