// Package onnx runs embedding models locally with onnxruntime.
//
// TextEmbedder tokenizes with a HuggingFace tokenizer.json and mean-pools the
// last hidden state. ImageEmbedder center-crops to 224x224, normalizes with
// CLIP channel statistics and takes the class token. Pair a text and vision
// model trained into the same space (nomic-embed-text-v1.5 with
// nomic-embed-vision-v1.5) so text queries can rank images.
package onnx
